// Package corefoundation implements cfbridge.Runtime on top of Apple's CoreFoundation and the
// Objective-C autorelease pool primitives. It registers itself as the "corefoundation" runtime
// when built for darwin with cgo enabled; on other platforms the package is empty.
package corefoundation
