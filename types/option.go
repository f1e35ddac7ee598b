package types

type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
	// OptionTypeNone is returned by strategies that decline to enter.
	OptionTypeNone OptionType = ""
)

func (o OptionType) Valid() bool {
	return o == OptionTypeCall || o == OptionTypePut
}
