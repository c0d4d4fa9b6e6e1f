package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"codenest/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators добавляет в gin-валидатор тег `language`
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			_, err := domain.ParseLanguage(fl.Field().String())
			return err == nil
		})
	})
}
