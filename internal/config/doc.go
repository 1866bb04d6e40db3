// Package config provides configuration parsing for popcorn.
//
// The configuration is stored in popcorn.json in the working directory.
// Every field is optional; missing fields take the defaults from New.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "addr": ":3000",
//	    "public": "public",
//	    "apiBaseURL": "http://localhost:3000"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "store": {
//	    "mergeStrategy": "lww",
//	    "logger": {
//	      "enabled": true,
//	      "diff": false,
//	      "level": "debug"
//	    }
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "popcorn"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "popcorn/store"
//	  }
//	}
package config
