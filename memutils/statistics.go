package memutils

import "math"

// Statistics summarizes the occupancy of a heap. HeaderBytes counts the segment headers of both
// live allocations and free segments, so that HeapBytes == AllocationBytes + FreeBytes + HeaderBytes.
type Statistics struct {
	HeapBytes       int
	AllocationCount int
	AllocationBytes int
	FreeBytes       int
	HeaderBytes     int
}

func (s *Statistics) Clear() {
	s.HeapBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
	s.FreeBytes = 0
	s.HeaderBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.HeapBytes += other.HeapBytes
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
	s.FreeBytes += other.FreeBytes
	s.HeaderBytes += other.HeaderBytes
}

type DetailedStatistics struct {
	Statistics
	FreeSegmentCount   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	FreeSegmentSizeMin int
	FreeSegmentSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.FreeSegmentCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.FreeSegmentSizeMin = math.MaxInt
	s.FreeSegmentSizeMax = 0
}

func (s *DetailedStatistics) AddFreeSegment(size int) {
	s.FreeSegmentCount++
	s.FreeBytes += size

	if size < s.FreeSegmentSizeMin {
		s.FreeSegmentSizeMin = size
	}

	if size > s.FreeSegmentSizeMax {
		s.FreeSegmentSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.FreeSegmentCount += other.FreeSegmentCount

	if other.FreeSegmentSizeMin < s.FreeSegmentSizeMin {
		s.FreeSegmentSizeMin = other.FreeSegmentSizeMin
	}

	if other.FreeSegmentSizeMax > s.FreeSegmentSizeMax {
		s.FreeSegmentSizeMax = other.FreeSegmentSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
