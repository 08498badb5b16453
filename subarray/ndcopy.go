package subarray

import "github.com/arrayfs/nstore/types"

// copyBlock copies the copyShape-sized region starting at srcOffset in a
// buffer shaped srcShape into the region starting at dstOffset in a buffer
// shaped dstShape. Both buffers are flat, C-order. The innermost
// (fastest-varying) dimension is copied in one bulk `copy()` call per
// outer-dimension combination rather than element-by-element, mirroring
// the teacher's copyND bulk-copy optimization.
func copyBlock[T any](dstBuf []T, dstShape, dstOffset types.Shape, srcBuf []T, srcShape, srcOffset types.Shape, copyShape types.Shape) {
	n := len(copyShape)
	if n == 0 {
		dstBuf[0] = srcBuf[0]
		return
	}

	dstStrides := dstShape.Strides()
	srcStrides := srcShape.Strides()
	last := n - 1
	runLen := copyShape[last]
	if runLen == 0 {
		return
	}

	outer := copyShape[:last]
	total := 1
	for _, d := range outer {
		total *= d
	}

	idx := make(types.Shape, len(outer))
	for iter := 0; iter < total; iter++ {
		dstBase := dstOffset[last] * dstStrides[last]
		srcBase := srcOffset[last] * srcStrides[last]
		for d := range outer {
			dstBase += (dstOffset[d] + idx[d]) * dstStrides[d]
			srcBase += (srcOffset[d] + idx[d]) * srcStrides[d]
		}
		copy(dstBuf[dstBase:dstBase+runLen], srcBuf[srcBase:srcBase+runLen])

		for d := len(outer) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < copyShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}
