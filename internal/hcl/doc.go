// Package hcl provides the HCL implementation of config.Loader.
//
// A definition file contains one or more graph blocks:
//
//	graph "diamond" {
//	  description = "two parents share one child"
//	  root        = branch["top"]
//
//	  leaf "x" {}
//
//	  branch "top" {
//	    left  = branch["mid"]
//	    right = "mid"
//	  }
//	  branch "mid" {
//	    left  = leaf.x
//	    right = leaf.x
//	  }
//	}
//
// Children and the root are expressions. Inside a graph block the variables
// leaf and branch are objects keyed by every label declared in that block,
// so a reference to an undeclared node is reported as an HCL diagnostic with
// a source range. Plain strings and numbers are accepted as labels too; those
// are only checked later by the builder.
package hcl
