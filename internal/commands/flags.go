package commands

// optionalString is a string flag that remembers whether it was given,
// so an explicit empty value can be told apart from an absent one.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string {
	if o == nil {
		return ""
	}
	return o.value
}

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// reset clears the flag before a new parse.
func (o *optionalString) reset() {
	o.value = ""
	o.set = false
}
