//go:build darwin

package actuator

/*
#cgo darwin CFLAGS: -x objective-c -fobjc-arc
#cgo darwin LDFLAGS: -framework AppKit

#import <AppKit/AppKit.h>

static int hapticPerformerAvailable(void) {
        return [NSHapticFeedbackManager defaultPerformer] != nil;
}

static void hapticPerform(int pattern) {
        [[NSHapticFeedbackManager defaultPerformer]
                performFeedbackPattern:(NSHapticFeedbackPattern)pattern
                       performanceTime:NSHapticFeedbackPerformanceTimeNow];
}
*/
import "C"

type nativeDriver struct{}

// NewNative returns a driver backed by NSHapticFeedbackManager.
func NewNative() (Driver, error) {
	if C.hapticPerformerAvailable() == 0 {
		return nil, newUnavailableError("NSHapticFeedbackManager has no default performer")
	}
	return nativeDriver{}, nil
}

func (nativeDriver) Perform(k Kind) error {
	switch k {
	case Generic, Alignment:
	default:
		return newUnavailableError("unsupported pulse " + k.String())
	}
	C.hapticPerform(C.int(k))
	return nil
}
