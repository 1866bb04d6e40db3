package middleware

// OtherActionType replaces action types outside a known set in metric labels
// and span names.
const OtherActionType = "other"

// actionLabeler returns a function mapping an action type to its label. With
// no known types every type is its own label.
func actionLabeler(known []string) func(string) string {
	if len(known) == 0 {
		return func(t string) string { return t }
	}
	set := make(map[string]struct{}, len(known))
	for _, t := range known {
		set[t] = struct{}{}
	}
	return func(t string) string {
		if _, ok := set[t]; ok {
			return t
		}
		return OtherActionType
	}
}
