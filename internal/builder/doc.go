/*
Package builder turns a format-agnostic graph definition (config.Graph) into a
traversable node graph.

Construction is a multi-phase process:

 1. Declaration indexing: every leaf and branch label is recorded. A label
    declared twice, as any kind, is rejected.

 2. Reference validation: the root and both children of every branch must
    name a declared node.

 3. Cycle detection: a depth-first search over the branch references, using
    the classic three-set (unvisited, temporary, permanent) scheme, rejects
    definitions that are not acyclic. The finishing order of that search is
    a post-order, so every child is finished before any of its parents.

 4. Node creation: nodes are created in that post-order, so each branch can
    be given its already-built children. A label referenced from several
    parents becomes one shared node.

The traversal packages never import builder; acyclicity is guaranteed here,
on the construction side, and assumed everywhere else.
*/
package builder
