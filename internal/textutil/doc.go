// Package textutil provides small text helpers: filesystem-safe tokens for
// workspace names, path stems for output naming, and transcript segment
// joining.
package textutil
