//go:build integration

package integration

import (
	"testing"

	"ratematch/internal/testkit"
)

func TestMain(m *testing.M) {
	testkit.Run(m, func(s *testkit.Suite) {
		suite = s
		testDB = s.DB
		testRDB = s.Redis
	})
}
