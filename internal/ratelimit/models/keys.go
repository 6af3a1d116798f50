package models

import "strings"

// SubjectUser and SubjectIP prefix the two kinds of rate-limit subjects.
const (
	SubjectUser = "user"
	SubjectIP   = "ip"
)

// Key builds the storage key "rl:<policy>:<kind>:<id>".
func Key(policy, kind, id string) string {
	return strings.Join([]string{"rl", policy, kind, id}, ":")
}
