//go:build !looperdebug

package deck

const strictInvariants = false
