//go:build looperdebug

package deck

const strictInvariants = true
