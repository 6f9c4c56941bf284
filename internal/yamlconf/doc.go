// Package yamlconf provides the YAML implementation of config.Loader.
//
//	graphs:
//	  - name: diamond
//	    root: top
//	    leaves: [x]
//	    branches:
//	      - {label: top, left: mid, right: mid}
//	      - {label: mid, left: x, right: x}
//
// Labels may be written as strings or bare numbers. Unknown keys are
// rejected.
package yamlconf
