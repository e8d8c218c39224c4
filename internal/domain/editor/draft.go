package editor

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/blazen1013/setting/internal/domain/model"
)

// Field — редактируемое поле черновика.
type Field string

const (
	FieldName     Field = "name"
	FieldEmail    Field = "email"
	FieldMobile   Field = "mobile"
	FieldStatus   Field = "status"
	FieldPassword Field = "password"
)

// MinPasswordLength — минимальная длина нового пароля.
const MinPasswordLength = 8

// Draft — редактируемая копия полей записи.
// Password — только запись: никогда не заполняется из прочитанной записи.
type Draft struct {
	Name     string `form:"name" validate:"notblank"`
	Email    string `form:"email" validate:"notblank"`
	Mobile   string `form:"mobile" validate:"notblank"`
	Status   string `form:"status"`
	Password string `form:"password" validate:"omitempty,min=8"` //nolint:gosec // G117: черновик формы
}

// Violation — нарушенное предусловие одного поля.
type Violation struct {
	Field Field
	// Rule — тег нарушенного правила (notblank, min)
	Rule string
}

// PreconditionError — черновик не прошёл локальную проверку,
// отправка заблокирована без сетевого вызова.
type PreconditionError struct {
	Violations []Violation
}

func (e *PreconditionError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s(%s)", v.Field, v.Rule))
	}
	return "не выполнены предусловия отправки: " + strings.Join(parts, ", ")
}

// Fields возвращает поля с нарушениями в порядке проверки.
func (e *PreconditionError) Fields() []Field {
	fields := make([]Field, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// validate — общий валидатор черновиков.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	// notblank — строка непуста после обрезки пробелов
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate проверяет предусловия отправки.
// Возвращает *PreconditionError со всеми нарушениями.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("проверка черновика: %w", err)
	}

	pe := &PreconditionError{Violations: make([]Violation, 0, len(verrs))}
	for _, fe := range verrs {
		pe.Violations = append(pe.Violations, Violation{Field: Field(fe.Field()), Rule: fe.Tag()})
	}
	return pe
}

// Payload строит тело PUT-запроса. Пустые status и password
// передаются как null, никогда не как пустая строка.
func (d Draft) Payload() model.UpdatePayload {
	p := model.UpdatePayload{
		Name:   d.Name,
		Email:  d.Email,
		Mobile: d.Mobile,
	}
	if d.Status != "" {
		s := d.Status
		p.Status = &s
	}
	if d.Password != "" {
		pw := d.Password
		p.Password = &pw
	}
	return p
}

// set меняет одно поле по имени.
func (d *Draft) set(field Field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldMobile:
		d.Mobile = value
	case FieldStatus:
		d.Status = value
	case FieldPassword:
		d.Password = value
	default:
		return fmt.Errorf("неизвестное поле черновика: %q", field)
	}
	return nil
}

// seedDraft заполняет черновик из записи; пароль всегда пуст.
func seedDraft(record *model.Employee) Draft {
	return Draft{
		Name:   record.Name,
		Email:  record.Email,
		Mobile: record.Mobile,
		Status: record.StatusCode(),
	}
}
