// Package kernel holds the raw HC11 machine code the session uploads into
// PCM RAM via ALDL mode 6 and keeps resident for the duration of a
// programming session. These bytes are the on-chip flash driver: once
// running, the PCM talks a much richer vocabulary (read, write, erase,
// checksum) over the same ALDL link, at the cost of having disabled
// every other ECU function for the duration.
//
// The blocks are immutable reference payloads with a small number of
// runtime patch points: a read-speed flag in the two main execution
// blocks, and a bank/sector operand in the erase and bank-select helper
// blocks. The patch helpers (ExecBlocks, EraseSectorBlock, WriteBankBlock)
// and Verify never mutate the package-level slices; the patch helpers
// return a fresh copy.
package kernel
