// Command slabdemo maps a region file, lays out (or attaches to) a slab
// pool inside it, runs a small burst of allocate/free traffic, and prints
// the resulting per-class statistics. It exists only to exercise the
// region and slabpool packages end to end; it owns no part of the pool's
// external contract.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	slabpool "github.com/haoxu/shmslab"
	"github.com/haoxu/shmslab/region"
)

func main() {
	path := flag.StringP("path", "p", "/tmp/slabdemo.region", "region file to create or attach")
	sizeMB := flag.IntP("size-mb", "s", 4, "region size in MiB, for a freshly created region")
	attach := flag.BoolP("attach", "a", false, "attach to an existing region instead of creating one")
	flag.Parse()

	var (
		pool *slabpool.Pool
		reg  *region.Region
		err  error
	)

	if *attach {
		reg, err = region.Attach(*path)
		if err != nil {
			fatal(err)
		}
		pool, err = slabpool.Attach(reg.Bytes(), nil, "slabdemo")
	} else {
		reg, err = region.Create(*path, *sizeMB*1<<20)
		if err != nil {
			fatal(err)
		}
		pool, err = slabpool.NewPool(reg.Bytes(), slabpool.Config{LogCtx: "slabdemo"})
	}
	if err != nil {
		fatal(err)
	}
	defer reg.Close()

	ptrs := make([]slabpool.Ptr, 0, 256)
	for i := 0; i < 256; i++ {
		size := uint32(8 << (i % 6))
		p := pool.Allocate(size)
		if p.Valid() {
			ptrs = append(ptrs, p)
		}
	}
	for i, p := range ptrs {
		if i%3 == 0 {
			pool.Free(p)
		}
	}

	st := pool.Stats()
	fmt.Printf("free pages: %d\n", st.FreePages)
	for i, c := range st.Classes {
		if c.Total == 0 && c.Requests == 0 {
			continue
		}
		fmt.Printf("class %2d  chunk=%-6d total=%-6d used=%-6d reqs=%-6d fails=%d\n",
			i, c.ChunkSize, c.Total, c.Used, c.Requests, c.Failures)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "slabdemo:", err)
	os.Exit(1)
}
