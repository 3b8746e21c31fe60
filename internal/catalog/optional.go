package catalog

// OptionalString distinguishes an absent field from one explicitly set,
// possibly to the empty string.
type OptionalString struct {
	Value string
	Set   bool
}

// Some returns a set OptionalString.
func Some(v string) OptionalString {
	return OptionalString{Value: v, Set: true}
}

// Ptr returns nil when unset.
func (o OptionalString) Ptr() *string {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}
