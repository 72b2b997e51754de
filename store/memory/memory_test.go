package memory

import (
	"testing"

	"github.com/hupe1980/agriconnect/core"
	"github.com/hupe1980/agriconnect/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(_ *testing.T, clock *storetest.Clock) core.RecordStore {
		return New(func(o *Options) { o.Now = clock.Now })
	})
}
