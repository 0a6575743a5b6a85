// Package validation はリクエスト入力の構造体タグ検証を提供する。
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/taskman/internal/model"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// エラーのフィールド名をJSONのキー名で報告する
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError は検証に失敗したフィールドと違反したルール。
type FieldError struct {
	Field string // JSONのキー名
	Tag   string // required, max など
	Param string // maxの上限値など
}

// Check はsを検証し、失敗したフィールドを宣言順に返す。
// 検証エラーがなければnilを返す。
func Check(s any) ([]FieldError, error) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("failed to validate %T: %w", s, err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return fields, nil
}

// InvalidFields はsの検証に失敗したフィールドのJSON名を宣言順に返す。
// 検証エラーがなければnilを返す。
func InvalidFields(s any) ([]string, error) {
	fields, err := Check(s)
	if err != nil || fields == nil {
		return nil, err
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names, nil
}

// Struct はsを検証し、失敗した場合はValidationErrorを返す。
// 必須項目の欠落にはmessageを使う。messageはクライアントにそのまま返されるため、
// エンドポイントごとの文言を渡す。
// 必須項目が揃っていて長さ上限だけを超えた場合は、最初のフィールドの上限を示す。
func Struct(s any, message string) error {
	fields, err := Check(s)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	for _, f := range fields {
		if f.Tag != "max" {
			return model.NewValidationError(message)
		}
	}
	return model.NewValidationError(fmt.Sprintf("%s must be at most %s characters", fields[0].Field, fields[0].Param))
}
