// Package dbname derives physical tenant database names from user-supplied
// organization labels. Names are deterministic, prefixed, restricted to a
// safe identifier charset, and checked against reserved catalog and
// control-plane names.
package dbname
