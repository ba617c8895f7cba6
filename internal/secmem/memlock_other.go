//go:build !linux && !darwin

package secmem

func lockLimit() int64 {
	return -1
}
