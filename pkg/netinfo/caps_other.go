//go:build !linux

package netinfo

// Driver-level WoL inspection is only wired up on Linux; other platforms
// still get the portable interface inventory.
func wolNotes(ifName string) []string {
	return nil
}
