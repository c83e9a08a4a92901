package out

// IDGenerator mints strictly increasing 64-bit IDs.
// *snowflake.Generator is the production implementation.
type IDGenerator interface {
	NextID() (int64, error)
	WorkerID() int64
}
