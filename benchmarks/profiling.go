package benchmarks

import (
	"os"
	"path"
	"runtime"
	"runtime/pprof"

	"github.com/sirupsen/logrus"
	"github.com/zeu5/dual-ac/util"
)

// startProfiling starts the CPU profile when requested. The returned function
// stops it and writes the heap profile.
func startProfiling(logger *logrus.Logger) func() {
	stops := make([]func(), 0)
	if cpuprofile != "" || memprofile != "" {
		if err := util.EnsureDir(saveFile); err != nil {
			logger.WithError(err).Fatal("could not create save folder")
		}
	}

	if cpuprofile != "" {
		cpuProfPath := path.Join(saveFile, cpuprofile)
		logger.WithField("file", cpuProfPath).Info("profiling CPU")
		f, err := os.Create(cpuProfPath)
		if err != nil {
			logger.WithError(err).Fatal("could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.WithError(err).Fatal("could not start CPU profile")
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if memprofile != "" {
		memProfPath := path.Join(saveFile, memprofile)
		stops = append(stops, func() {
			logger.WithField("file", memProfPath).Info("profiling memory")
			f, err := os.Create(memProfPath)
			if err != nil {
				logger.WithError(err).Error("could not create memory profile")
				return
			}
			defer f.Close()
			runtime.GC() // get up-to-date statistics
			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.WithError(err).Error("could not write memory profile")
			}
		})
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
