// Package loader reads workflow definitions from disk.
//
// Two formats are accepted. JSON files hold a single workflow document in
// the same shape the HTTP API takes. HCL files hold one or more workflow
// blocks:
//
//	workflow "avax_swap" {
//	  name      = "Swap AVAX for USDC"
//	  variables = { chain_id = 43114 }
//
//	  node "wallet_connector" "wallet" {
//	    inputs = { wallet_address = "0x..." }
//	  }
//
//	  node "token_selector" "tokens" {
//	    inputs       = { from_token = "AVAX", to_token = "USDC" }
//	    dependencies = ["wallet"]
//	  }
//	}
//
// A directory is scanned recursively for both.
package loader
