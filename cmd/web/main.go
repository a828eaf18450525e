// @title           eTaca API
// @version         1.0
// @description     API платформы пожертвований (Fiserv HPP + S2S реконсиляция).
// @host            localhost:4000
// @BasePath        /

package main

import "etaca_backend/internal/app"

func main() {
	app.Run()
}
