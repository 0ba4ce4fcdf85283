package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Closer накапливает функции освобождения ресурсов и закрывает их в порядке LIFO.
type Closer struct {
	mu    sync.Mutex
	once  sync.Once
	funcs []Func
}

// Func — сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

func New() *Closer {
	return &Closer{}
}

// Add добавляет функцию в список закрытия.
func (c *Closer) Add(f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = append(c.funcs, f)
}

// Close закрывает зарегистрированные ресурсы в обратном порядке регистрации.
// Ошибки отдельных функций накапливаются; отмена контекста прерывает обход.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		funcs := c.funcs
		c.mu.Unlock()

		var errs []string
		for i := len(funcs) - 1; i >= 0; i-- {
			if ctx.Err() != nil {
				errs = append(errs, fmt.Sprintf("[!] interrupted, %d func(s) skipped: %v", i+1, ctx.Err()))
				break
			}

			if closeErr := funcs[i](ctx); closeErr != nil {
				errs = append(errs, fmt.Sprintf("[!] %v", closeErr))
			}
		}

		if len(errs) > 0 {
			err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(errs, "\n"))
		}
	})

	return err
}
