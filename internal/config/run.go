package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "bpkupdate/internal/errors"
)

// RunOptions are the command-line options of one run.
type RunOptions struct {
	Inputs         []string `validate:"required,min=1,dive,required"`
	Output         string   `validate:"required"`
	MaxEvents      int      `validate:"gte=-1"`
	ReportInterval int      `validate:"gte=0"`
	RunJEC         bool
	RunJER         bool
	JECVersion     string
	JERVersion     string
	Collections    []string `validate:"dive,oneof=CHS Puppi chs puppi"`
	SummaryPath    string   `validate:"omitempty,summaryext"`
	DumpJets       string   `validate:"omitempty,endswith=.csv"`
	MetricsFile    string
	ConfigFile     string
}

var runValidator = newRunValidator()

func newRunValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("summaryext", isSummaryPath)
	return v
}

func isSummaryPath(fl validator.FieldLevel) bool {
	p := strings.ToLower(fl.Field().String())
	return strings.HasSuffix(p, ".csv") || strings.HasSuffix(p, ".xlsx")
}

// Validate checks the options. The JEC/JER version requirement is left to the
// correction selector.
func (o *RunOptions) Validate() error {
	err := runValidator.Struct(o)
	if err == nil {
		for _, in := range o.Inputs {
			if in == o.Output {
				return apperrors.NewConfigError("output would overwrite input "+in, nil).WithContext("field", "Output")
			}
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewConfigError("invalid run options", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return apperrors.NewConfigError(strings.Join(msgs, "; "), nil).WithContext("field", verrs[0].Field())
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s needs at least %s value(s)", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %q is not one of CHS, Puppi", fe.Field(), fe.Value())
	case "endswith":
		return fmt.Sprintf("%s must end in %s", fe.Field(), fe.Param())
	case "summaryext":
		return fmt.Sprintf("%s must end in .csv or .xlsx", fe.Field())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
