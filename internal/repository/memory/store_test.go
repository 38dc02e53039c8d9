package memory_test

import (
	"testing"

	"The_Connection/internal/repository"
	"The_Connection/internal/repository/memory"
	"The_Connection/internal/repository/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return memory.New()
	})
}
