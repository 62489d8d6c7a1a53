// Package triageai implements the user-facing AI classification features:
// ticket priority detection, crisis and grief detection, and
// book-recommendation ranking.
//
// Every function in this package degrades gracefully instead of failing.
// Classification errors must never cascade into user-visible failures, so
// priority detection falls back to "medium" and crisis/grief detection fall
// back to false. Crisis detection additionally skips retries entirely: a
// slow truthful answer is worse than a fast safe-negative one.
package triageai
