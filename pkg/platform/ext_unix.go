//go:build freebsd || linux

package platform

const moduleExt = ".so"
