// Package configs manages confseal's own settings.
//
// Settings are stored in TOML at $CONFSEAL_CONFIG, or at
// <UserConfigDir>/confseal/config.toml when the variable is unset:
//
//	[keys]
//	public_key = "~/.local/share/confseal/keys/confseal.pub"
//	private_key = "~/.local/share/confseal/keys/confseal.pem"
//
//	[protection]
//	payload_algorithm = "http://www.w3.org/2001/04/xmlenc#aes128-cbc"
//	rsa_bits = 2048
//
//	[output]
//	indent = 2
//
//	[audit]
//	log_path = "~/.local/share/confseal/audit.jsonl"
//	disabled = false
//
// A missing file yields Default(). Keys absent from the file keep their
// default values. Unknown keys and invalid values are reported together by
// Validate.
package configs
