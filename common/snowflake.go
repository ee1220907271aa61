package common

import (
	"fmt"
	"strconv"
)

// Snowflake is a 64-bit Discord entity ID, unique within its namespace.
// The wire format is a decimal string; the zero value means "no ID".
type Snowflake uint64

// ParseSnowflake parses the decimal string form of a Snowflake.
func ParseSnowflake(s string) (Snowflake, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse Snowflake ID string: %w", err)
	}
	return Snowflake(v), nil
}

// MustParseSnowflake parses the decimal string form of a Snowflake, panicking
// on malformed input.
func MustParseSnowflake(s string) Snowflake {
	v, err := ParseSnowflake(s)
	if err != nil {
		panic(err)
	}
	return v
}

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// IsZero reports whether the Snowflake is the zero "no ID" value.
func (s Snowflake) IsZero() bool {
	return s == 0
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == "null" {
		*s = 0
		return nil
	}
	if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
		str = str[1 : len(str)-1]
	}
	if str == "" {
		*s = 0
		return nil
	}
	v, err := ParseSnowflake(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
