// bootstrap.go - The host's own bootstrap script
//
// _z8 is the only piece of cart-visible Lua the host itself supplies: it
// gives every loaded cart two entry points, _z8.run (invoked once, right
// after the cart chunk is loaded) and _z8.tick (invoked every step), and
// tolerates a cart that defines neither _init/_update/_draw nor _update60
// by simply doing nothing. Errors propagate to the host through the
// coroutine resume rather than a pcall here, so a script that blows the
// instruction budget inside _init can still yield through these frames.
package main

const bootstrapSource = `
_z8 = {}

function _z8.run(cart)
	cart()
	if _init then
		_init()
	end
end

function _z8.tick()
	_update_buttons()
	if _update60 then
		_update60()
	elseif _update then
		_update()
	end
	if _draw then
		_draw()
	end
end
`
