package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Every method returns a newly allocated tensor and leaves its inputs untouched.
// Invalid shapes or configuration cause a panic whose message starts with the
// operation name (for example "add: shapes not compatible ...").
//
// Implementations:
//   - CPU: Pure Go kernels (internal/backend/cpu)
//   - Autodiff: decorator recording a gradient tape (internal/autodiff)
type Backend interface {
	// Element-wise binary operations (NumPy broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution: input [N, C_in, H, W], kernel [C_out, C_in, K_h, K_w]
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Pooling over the trailing spatial axes of [N, C, ...]
	MaxPool(x *RawTensor, w Window) *RawTensor
	MaxPoolIndices(x *RawTensor, w Window) *RawTensor // int32 flat offsets inside each window
	MaxPoolBackward(x, grad *RawTensor, w Window) *RawTensor
	AvgPool(x *RawTensor, w Window) *RawTensor
	AvgPoolBackward(inputShape Shape, grad *RawTensor, w Window) *RawTensor

	// Unpool scatters every input element into its window of an output of
	// spatial size outSize, summing overlaps. With non-nil indexes only the
	// indexed window offset receives the value.
	Unpool(x, indexes *RawTensor, w Window, outSize []int) *RawTensor
	UnpoolBackward(indexes, grad *RawTensor, w Window, inputShape Shape) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor // broadcast to shape
	Cat(tensors []*RawTensor, dim int) *RawTensor

	// Scalar operations
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Math and activations
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions
	Sum(x *RawTensor) *RawTensor // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDimBackward(x, grad *RawTensor, dim int, keepDim bool) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
