package services

import (
	"context"
	"fmt"
	"testing"

	"mlm-platform/internal/config"
	"mlm-platform/internal/repository"
	"mlm-platform/internal/testutil"
)

// BenchmarkDistribute measures a full commission walk over a chain deeper than the payout cap
func BenchmarkDistribute(b *testing.B) {
	depths := []int{2, 6, 20}

	for _, depth := range depths {
		b.Run(fmt.Sprintf("Depth-%d", depth), func(b *testing.B) {
			db := testutil.NewTestDB(b)
			repo := repository.NewRepository(db)
			service := NewCommissionService(repo, config.DefaultNetworkConfig())

			chain := testutil.CreateChain(b, db, depth)
			source := chain[len(chain)-1]
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				report := service.Distribute(ctx, source.ID, source.ID)
				if report.Err != nil {
					b.Fatalf("Distribute failed: %v", report.Err)
				}
			}
		})
	}
}

// BenchmarkPropagate measures the network-size walk, which is not capped at six hops
func BenchmarkPropagate(b *testing.B) {
	depths := []int{6, 50, 200}

	for _, depth := range depths {
		b.Run(fmt.Sprintf("Depth-%d", depth), func(b *testing.B) {
			db := testutil.NewTestDB(b)
			repo := repository.NewRepository(db)
			service := NewNetworkService(repo, NewRewardService(repo), config.DefaultNetworkConfig())

			chain := testutil.CreateChain(b, db, depth)
			tail := chain[len(chain)-1]
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				report := service.Propagate(ctx, tail.ID)
				if report.Err != nil {
					b.Fatalf("Propagate failed: %v", report.Err)
				}
			}
		})
	}
}

// BenchmarkComputeLevelCounts runs the in-memory tally over a tree with a fan-out of 4
func BenchmarkComputeLevelCounts(b *testing.B) {
	sizes := []int{1000, 10000, 100000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Members-%d", size), func(b *testing.B) {
			edges := make([]repository.TreeEdge, size)
			parents := make(map[uint]*uint, size)
			for i := 0; i < size; i++ {
				id := uint(i + 1)
				var ref *uint
				if i > 0 {
					p := uint(i/4 + 1)
					ref = &p
				}
				edges[i] = repository.TreeEdge{ID: id, ReferrerID: ref}
				parents[id] = ref
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				counts := ComputeLevelCounts(edges, parents)
				if len(counts) != size {
					b.Fatalf("expected %d rows, got %d", size, len(counts))
				}
			}
		})
	}
}
