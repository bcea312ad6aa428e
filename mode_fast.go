//go:build !arena_verify

package pagearena

const defaultMode = ModeFast
