package pool_test

import (
	"fmt"

	jsonpool "github.com/ajitpratap0/nebula-rickmorty/pkg/json"
	"github.com/ajitpratap0/nebula-rickmorty/pkg/pool"
)

// Example demonstrates getting a record from the pool and returning it.
func Example() {
	record := pool.GetRecord()
	defer record.Release()

	record.SetData("name", "Morty Smith")
	record.Metadata.Source = "rickmorty"

	if name, ok := record.GetData("name"); ok {
		fmt.Printf("Name: %v\n", name)
	}

	// Output:
	// Name: Morty Smith
}

// ExampleNewStreamRecord shows a record keyed by its primary key.
func ExampleNewStreamRecord() {
	data := map[string]interface{}{
		"id":   jsonpool.Number("1"),
		"name": "Rick Sanchez",
	}
	record := pool.NewStreamRecord("rickmorty", "characters", "id", 0, data)
	defer record.Release()

	fmt.Println(record.ID)
	fmt.Println(record.Metadata.StreamID)

	// Output:
	// 1
	// characters
}

// ExampleGetBatchSlice shows batch reuse.
func ExampleGetBatchSlice() {
	batch := pool.GetBatchSlice(10)
	defer pool.PutBatchSlice(batch)

	for i := 0; i < 3; i++ {
		batch = append(batch, pool.GetRecord())
	}
	fmt.Println(len(batch))
	for _, r := range batch {
		r.Release()
	}

	// Output:
	// 3
}
