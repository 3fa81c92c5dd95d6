//go:build !protogen

package directory

// NewRemote is a no-op in builds without generated protobuf code; callers
// fall back to the SQL directory.
func NewRemote(_ string) (Directory, error) {
	return nil, nil
}
