// Package testutil carries shared test helpers. Mock implementations
// live in testutil/mocks, canned agent definitions in testutil/fixtures.
package testutil
