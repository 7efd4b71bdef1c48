// Package validation registers the request rules shared by gin binding and
// the service layer on go-playground/validator.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SkillLevels are the recognized self-assessed levels, lowercase.
var SkillLevels = []string{"beginner", "intermediate", "advanced", "expert"}

// ActivityTypes are the progress events the gamification service accepts.
var ActivityTypes = []string{
	"task_complete",
	"project_start",
	"project_complete",
	"week_complete",
	"resource_used",
	"daily_login",
	"join_community",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Get returns the singleton validator with the custom rules registered.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := Register(validate); err != nil {
			panic(err)
		}
	})
	return validate
}

// Register installs the json field names and the custom tags on v:
//
//	skill_level    case-insensitive member of SkillLevels
//	activity_type  member of ActivityTypes
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	if err := v.RegisterValidation("skill_level", func(fl validator.FieldLevel) bool {
		return IsSkillLevel(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("activity_type", func(fl validator.FieldLevel) bool {
		return IsActivityType(fl.Field().String())
	})
}

// RegisterWithGin installs the rules on gin's default binding engine.
func RegisterWithGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

// IsSkillLevel reports whether s names a recognized level, ignoring case.
func IsSkillLevel(s string) bool {
	return CanonicalSkillLevel(s) != ""
}

// CanonicalSkillLevel maps "BEGINNER" or "beginner" to "Beginner".
// It returns "" for unrecognized values.
func CanonicalSkillLevel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, lvl := range SkillLevels {
		if s == lvl {
			return strings.ToUpper(lvl[:1]) + lvl[1:]
		}
	}
	return ""
}

func IsActivityType(s string) bool {
	for _, a := range ActivityTypes {
		if s == a {
			return true
		}
	}
	return false
}

func jsonName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
