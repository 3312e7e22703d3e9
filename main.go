package main

import (
	"flag"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/hiddenswitch/loom/crosscat"
)

func main() {
	var (
		flagModelFilePath = flag.String("model", "", "cross-categorization model file path (json)")
		flagRowsFilePath  = flag.String("rows", "", "optional row data file path to seed the kind mixtures")
		flagIterations    = flag.Int("iterations", 100, "number of reassignment sweeps")
		flagThreads       = flag.Int("threads", 8, "number of threads for the likelihood phase")
		flagSeed          = flag.Int64("seed", 0, "random seed (0 means time-based)")
	)
	flag.Parse()

	runtime.GOMAXPROCS(*flagThreads)
	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	fmt.Println("Loading model")
	cc, err := crosscat.LoadCrossCat(*flagModelFilePath)
	if err != nil {
		fmt.Println("load error:", err)
		return
	}
	kindCount := len(cc.Kinds)
	featureCount := len(cc.Schema)
	fmt.Println("features:", featureCount, "kinds:", kindCount)

	engine := crosscat.NewEngine(*flagThreads)
	if err := engine.Load(cc); err != nil {
		fmt.Println("load error:", err)
		return
	}
	if err := engine.InitEmptyMixtures(cc, rng); err != nil {
		fmt.Println("init error:", err)
		return
	}

	if *flagRowsFilePath != "" {
		fmt.Println("Loading rows")
		rowContainer, err := crosscat.NewRowContainer(*flagRowsFilePath)
		if err != nil {
			fmt.Println("rows error:", err)
			return
		}
		for k := 0; k < kindCount; k++ {
			groupCount := len(cc.Kinds[k].GroupCounts)
			for _, row := range rowContainer.Rows {
				group := rng.Intn(groupCount)
				if err := engine.ObserveRow(k, group, row); err != nil {
					fmt.Println("rows error:", err)
					return
				}
			}
		}
		fmt.Println("rows:", rowContainer.Size)
	}

	assignments := make([]int, featureCount)
	for f := range assignments {
		assignments[f] = rng.Intn(kindCount)
	}

	fmt.Println("Reassigning features")
	bar := pb.StartNew(*flagIterations)
	for i := 0; i < *flagIterations; i++ {
		if err := engine.InferAssignments(assignments, 1, rng); err != nil {
			bar.Finish()
			fmt.Println("inference error:", err)
			return
		}
		bar.Increment()
	}
	bar.Finish()

	counts := make([]int, kindCount)
	for _, k := range assignments {
		counts[k]++
	}
	fmt.Println("assignments:", assignments)
	fmt.Println("kind occupancy:", counts)
}
