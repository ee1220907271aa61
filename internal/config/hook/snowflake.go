package hook

import (
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/ZeroTwo-Bot/kord/common"
)

var (
	snowflakeType = reflect.TypeOf(common.Snowflake(0))
)

// Snowflake decodes the decimal string form entity IDs take in YAML and
// environment values.
func Snowflake() mapstructure.DecodeHookFuncType {
	return func(in reflect.Type, out reflect.Type, val interface{}) (interface{}, error) {
		if in.Kind() == reflect.String && out == snowflakeType {
			return common.ParseSnowflake(val.(string))
		}
		return val, nil
	}
}
