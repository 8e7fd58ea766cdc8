package qjni

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2gis/qtandroidextensions-sub000/jni"
)

func roundTrip[T Primitive](t *testing.T, vals []T) {
	t.Helper()
	arr, err := NewPrimitiveArray(vals)
	require.NoError(t, err)
	defer arr.Close()
	assert.True(t, arr.ClassMayBeNull())

	n, err := arr.ArrayLength()
	require.NoError(t, err)
	assert.Equal(t, len(vals), n)

	got, err := PrimitiveArray[T](arr)
	require.NoError(t, err)
	if diff := cmp.Diff(vals, got); diff != "" {
		t.Errorf("array mismatch (-want +got):\n%s", diff)
	}
}

func TestPrimitiveArrays(t *testing.T) {
	vm := newTestVM(t)

	roundTrip(t, []bool{true, false, true})
	roundTrip(t, []int8{-128, 0, 127})
	roundTrip(t, []byte("bytes"))
	roundTrip(t, []uint16{'a', 0xFFFF})
	roundTrip(t, []int16{math.MinInt16, math.MaxInt16})
	roundTrip(t, []int32{1, -2, math.MaxInt32})
	roundTrip(t, []int64{math.MinInt64, 0, math.MaxInt64})
	roundTrip(t, []float32{1.5, -0.25})
	roundTrip(t, []float64{math.Pi, math.Inf(-1)})
	roundTrip(t, []int32{})

	// Read-only snapshots never commit back.
	assert.Zero(t, vm.ArrayReleases(jni.CopyBack))
	assert.Zero(t, vm.ArrayReleases(jni.Commit))
	assert.Equal(t, 9, vm.ArrayReleases(jni.Abort))
	assertClean(t, vm)
}

func TestPrimitiveArrayElementMismatch(t *testing.T) {
	vm := newTestVM(t)

	arr, err := NewPrimitiveArray([]int8{1, 2, 3})
	require.NoError(t, err)
	defer arr.Close()

	longs, err := PrimitiveArray[int64](arr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBridge)
	assert.Contains(t, err.Error(), "array is not [J")
	assert.Empty(t, longs)
	assert.Zero(t, vm.ArrayReleases(jni.Abort))

	// byte[] reads as either byte type.
	raw, err := PrimitiveArray[uint8](arr)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3}, raw)

	defineCounter(vm)
	counter := newCounter(t, 7)
	_, err = PrimitiveArray[int32](counter)
	assert.ErrorIs(t, err, ErrBridge)
	assertClean(t, vm)
}

func TestNullArrays(t *testing.T) {
	vm := newTestVM(t)

	ints, err := PrimitiveArray[int32](nil)
	require.NoError(t, err)
	assert.Empty(t, ints)
	strs, err := (&Object{}).StringArray()
	require.NoError(t, err)
	assert.Empty(t, strs)
	objs, err := (*Object)(nil).ObjectArray()
	require.NoError(t, err)
	assert.Empty(t, objs)
	assert.Zero(t, vm.Attaches())
}

func TestStringArray(t *testing.T) {
	vm := newTestVM(t)

	want := []string{"one", "", "drei", "日本"}
	arr, err := NewStringArray(want)
	require.NoError(t, err)
	defer arr.Close()

	got, err := arr.StringArray()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(want, got))

	objs, err := arr.ObjectArray()
	require.NoError(t, err)
	require.Len(t, objs, len(want))
	for i, o := range objs {
		s, err := o.ToString()
		require.NoError(t, err)
		assert.Equal(t, want[i], s)
		require.NoError(t, o.Close())
	}
	assertClean(t, vm)
}

func TestObjectArray(t *testing.T) {
	vm := newTestVM(t)
	defineCounter(vm)
	a, b := newCounter(t, 1), newCounter(t, 2)

	arr, err := NewObjectArray(counterClass, []*Object{a, nil, b})
	require.NoError(t, err)
	defer arr.Close()

	objs, err := arr.ObjectArray()
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Nil(t, objs[1])
	for i, want := range map[int]int32{0: 1, 2: 2} {
		n, err := objs[i].CallInt("get")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	closeAll(objs)

	_, err = NewObjectArray("pkg/Missing", nil)
	assert.ErrorIs(t, err, ErrClassNotFound)
	assertClean(t, vm)
}
