//go:build arena_verify

package pagearena

const defaultMode = ModeVerify
