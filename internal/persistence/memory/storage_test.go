package memory

import (
	"testing"

	"github.com/example/app-bouncer/internal/persistence"
	"github.com/example/app-bouncer/internal/persistence/storetest"
)

func TestStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return Open()
	})
}
