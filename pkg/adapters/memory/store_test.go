package memory_test

import (
	"testing"

	"github.com/studiobgc/dialogue-editor/pkg/adapters/memory"
	"github.com/studiobgc/dialogue-editor/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}
