//go:build darwin

package events

/*
#cgo darwin CFLAGS: -x objective-c -fmodules -fobjc-arc
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices -framework Cocoa
#include <ApplicationServices/ApplicationServices.h>
#include <Cocoa/Cocoa.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

static Boolean axCheckTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}

extern CGEventRef goHandleTactileEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);
extern void goHandleSpaceChange(uintptr_t handle);

static CFRunLoopSourceRef startEventTap(uintptr_t handle, CGEventMask mask, CFMachPortRef *tapOut) {
        CFMachPortRef tap = CGEventTapCreate(kCGAnnotatedSessionEventTap,
                                             kCGHeadInsertEventTap,
                                             kCGEventTapOptionListenOnly,
                                             mask,
                                             goHandleTactileEvent,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        *tapOut = tap;
        return source;
}

static void reenableTap(CFMachPortRef tap) {
        CGEventTapEnable(tap, true);
}

static CGEventMask tactileEventMask(void) {
        return (((CGEventMask)1) << kCGEventScrollWheel) |
               (((CGEventMask)1) << kCGEventRightMouseDown) |
               (((CGEventMask)1) << 30);
}

static double scrollDeltaY(CGEventRef event) {
        return CGEventGetDoubleValueField(event, kCGScrollWheelEventDeltaAxis1);
}

static int scrollIsContinuous(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGScrollWheelEventIsContinuous) != 0;
}

static void *addSpaceObserver(uintptr_t handle) {
        NSNotificationCenter *center = [[NSWorkspace sharedWorkspace] notificationCenter];
        id token = [center addObserverForName:NSWorkspaceActiveSpaceDidChangeNotification
                                       object:nil
                                        queue:nil
                                   usingBlock:^(NSNotification *note) {
                goHandleSpaceChange(handle);
        }];
        return (__bridge_retained void *)token;
}

static void removeSpaceObserver(void *token) {
        if (token == NULL) {
                return;
        }
        id observer = (__bridge_transfer id)token;
        [[[NSWorkspace sharedWorkspace] notificationCenter] removeObserver:observer];
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static void addSourceToRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
}
*/
import "C"

import (
	"context"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"
)

// Quartz posts these pseudo-types when it disables a tap that was too slow
// or when user input disabled it.
const (
	tapDisabledByTimeout   = 0xFFFFFFFE
	tapDisabledByUserInput = 0xFFFFFFFF
)

type quartzSource struct {
	now func() time.Time
}

func defaultTapSource(clock func() time.Time) EventSource {
	return &quartzSource{now: clock}
}

type quartzStream struct {
	emit      func(Event) error
	now       func() time.Time
	tap       C.CFMachPortRef
	stopLoop  func()
	mu        sync.Mutex
	err       error
	stopped   chan struct{}
	closeOnce sync.Once
}

func (s *quartzStream) close() {
	s.closeOnce.Do(func() {
		close(s.stopped)
	})
}

// emitEvent serialises the tap callback and the workspace observer, which
// may arrive on different threads, so emit is never called concurrently.
func (s *quartzStream) emitEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	if err := s.emit(ev); err != nil {
		s.err = err
		if s.stopLoop != nil {
			s.stopLoop()
		}
	}
}

func (s *quartzStream) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *quartzSource) Stream(ctx context.Context, emit func(Event) error) error {
	if C.axCheckTrusted() == C.Boolean(0) {
		return ErrAccessibilityPermission
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	stream := &quartzStream{emit: emit, now: s.now, stopped: make(chan struct{})}
	handle := cgo.NewHandle(stream)
	defer handle.Delete()

	var tap C.CFMachPortRef
	source := C.startEventTap(C.uintptr_t(handle), C.tactileEventMask(), &tap)
	if source == 0 {
		return ErrTapUnavailable
	}
	defer C.CFRelease(C.CFTypeRef(source))
	defer C.CFRelease(C.CFTypeRef(tap))
	stream.tap = tap

	observer := C.addSpaceObserver(C.uintptr_t(handle))
	defer C.removeSpaceObserver(observer)

	loop := C.currentRunLoop()
	stopOnce := sync.Once{}
	stream.stopLoop = func() {
		stopOnce.Do(func() {
			C.stopRunLoop(loop)
		})
	}
	C.addSourceToRunLoop(loop, source)

	cancelWatcher := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			stream.stopLoop()
		case <-stream.stopped:
		}
		close(cancelWatcher)
	}()

	C.runCurrentRunLoop()
	stream.stopLoop()
	stream.close()
	<-cancelWatcher
	if err := stream.failure(); err != nil {
		return err
	}
	return ctx.Err()
}

func streamFromHandle(h uintptr) (*quartzStream, bool) {
	stream, ok := cgo.Handle(h).Value().(*quartzStream)
	return stream, ok
}

//export goHandleTactileEvent
func goHandleTactileEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	stream, ok := streamFromHandle(uintptr(userInfo))
	if !ok {
		return event
	}

	code := int(eventType)
	switch uint32(eventType) {
	case tapDisabledByTimeout, tapDisabledByUserInput:
		C.reenableTap(stream.tap)
		return event
	}

	now := stream.now()
	switch KindForRawType(code) {
	case KindScroll:
		stream.emitEvent(Event{
			Time:       now,
			Kind:       KindScroll,
			DeltaY:     float64(C.scrollDeltaY(event)),
			Continuous: C.scrollIsContinuous(event) != 0,
			RawType:    code,
		})
	case KindRightClick:
		stream.emitEvent(Event{Time: now, Kind: KindRightClick, RawType: code})
	case KindPinch:
		stream.emitEvent(Event{Time: now, Kind: KindPinch, RawType: code})
	default:
		// ignore other events
	}

	return event
}

//export goHandleSpaceChange
func goHandleSpaceChange(h C.uintptr_t) {
	stream, ok := streamFromHandle(uintptr(h))
	if !ok {
		return
	}
	stream.emitEvent(WorkspaceChange(stream.now()))
}
