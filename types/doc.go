// Package types provides core types used across the pipeflow framework.
// This package has ZERO dependencies on other pipeflow packages to avoid
// circular imports. All other packages should import types from here.
package types
