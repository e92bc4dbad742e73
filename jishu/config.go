/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

const exampleConfig = `# Example jishu configuration TOML file.
# Every value can also be given as a flag or a JISHU_* environment variable.

[api]
url = "https://api.jishu.in"     # Jishu backend address
timeout = "30s"                  # Backend request timeout

[storage]
# dir = "/home/user/.jishu"      # Session storage directory, ~/.jishu by default

[log]
output = "stderr"                # Logger output. Could be "stdout", "stderr" or a file path
severity = "warn"                # Logger severity. Could be "info", "error", "warn" or "debug"

[google]
# client_id = "<client id>.apps.googleusercontent.com"
# client_secret = "<client secret>"
`
