package runner

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Literal renders v as Go source that evaluates to an equal value
func Literal(v any) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", errors.New("cannot bind nil without a type")
	case string:
		return strconv.Quote(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s = "float64(" + s + ")"
		}
		return s, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32:
		return fmt.Sprintf("%s(%v)", rv.Type(), v), nil
	case reflect.Slice, reflect.Array, reflect.Map:
		return fmt.Sprintf("%#v", v), nil
	}
	return "", fmt.Errorf("cannot bind value of type %T", v)
}
