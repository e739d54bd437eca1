// Package gate decides whether someone may open the trainer view.
//
// It is a plain comparison against one shared passphrase held in
// configuration. Anyone who can read the configuration, the CLI flags or the
// cookie it sets can get in, so it must not be relied on to keep athlete data
// confidential. Real accounts need server-side authentication.
package gate

// Check reports whether input matches passphrase. An empty passphrase never
// opens the gate.
func Check(input, passphrase string) bool {
	return passphrase != "" && input == passphrase
}
